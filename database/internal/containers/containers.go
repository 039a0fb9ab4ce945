//go:build integration

// Package containers starts disposable database servers for integration tests.
// Tests are skipped when no Docker daemon is reachable.
package containers

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gaborage/dbshape/config"
)

const (
	testUser     = "testuser"
	testPassword = "testpass"
	testDatabase = "testdb"
)

// Database is a running container and the configuration that reaches it.
type Database struct {
	container testcontainers.Container
	Config    config.DatabaseConfig
}

// Terminate stops and removes the container.
func (d *Database) Terminate(ctx context.Context) error {
	if d.container == nil {
		return nil
	}
	return d.container.Terminate(ctx)
}

// isDockerAvailable reports whether the Docker daemon can be contacted.
func isDockerAvailable(ctx context.Context) bool {
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.DaemonHost(ctx)
	return err == nil
}

// start runs req, resolves its mapped port and registers termination with t.
func start(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port nat.Port, cfg config.DatabaseConfig) *Database {
	t.Helper()

	if !isDockerAvailable(ctx) {
		t.Skip("Docker is not available - skipping integration test")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s container: %v", cfg.Vendor, err)
	}
	db := &Database{container: container}
	t.Cleanup(func() {
		if err := db.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate %s container: %v", cfg.Vendor, err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get %s container host: %v", cfg.Vendor, err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("failed to get %s container port: %v", cfg.Vendor, err)
	}

	cfg.Host = host
	cfg.Port = mapped.Int()
	db.Config = cfg
	t.Logf("%s container started at %s:%d", cfg.Vendor, host, cfg.Port)
	return db
}

// StartPostgreSQL starts postgres:17-alpine.
func StartPostgreSQL(ctx context.Context, t *testing.T) *Database {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
			"POSTGRES_DB":       testDatabase,
		},
		WaitingFor: wait.ForAll(
			// Postgres restarts once after initdb
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(60 * time.Second),
	}
	return start(ctx, t, req, "5432/tcp", config.DatabaseConfig{
		Vendor:   "postgresql",
		Database: testDatabase,
		Username: testUser,
		Password: testPassword,
		SSLMode:  "disable",
	})
}

// StartOracle starts gvenzl/oracle-free:23-slim with an application user.
func StartOracle(ctx context.Context, t *testing.T) *Database {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "gvenzl/oracle-free:23-slim",
		ExposedPorts: []string{"1521/tcp"},
		Env: map[string]string{
			"ORACLE_PASSWORD":   testPassword,
			"APP_USER":          testUser,
			"APP_USER_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("DATABASE IS READY TO USE!"),
			wait.ForListeningPort("1521/tcp"),
		).WithStartupTimeout(180 * time.Second),
	}
	return start(ctx, t, req, "1521/tcp", config.DatabaseConfig{
		Vendor:      "oracle",
		ServiceName: "FREEPDB1",
		Username:    testUser,
		Password:    testPassword,
	})
}

// StartMySQL starts mysql:8.4.
func StartMySQL(ctx context.Context, t *testing.T) *Database {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8.4",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": testPassword,
			"MYSQL_USER":          testUser,
			"MYSQL_PASSWORD":      testPassword,
			"MYSQL_DATABASE":      testDatabase,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("port: 3306  MySQL Community Server"),
			wait.ForListeningPort("3306/tcp"),
		).WithStartupTimeout(120 * time.Second),
	}
	return start(ctx, t, req, "3306/tcp", config.DatabaseConfig{
		Vendor:   "mysql",
		Database: testDatabase,
		Username: testUser,
		Password: testPassword,
	})
}
