//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/pitstrategy/pkg/db/migrate"
	database "github.com/mpapenbr/pitstrategy/pkg/db/postgres"
)

// create a pg connection pool for the pitstrategy testdatabase
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		log.Fatal(err)
	}
	container, err := SetupPostgres(ctx,
		WithPort(port.Port()),
		WithInitialDatabase("postgres", "password", "postgres"),
		WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
		WithName("pitstrategy-test"),
	)
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	dbURL := fmt.Sprintf("postgresql://postgres:password@%s:%s/postgres",
		host, containerPort.Port())

	return setupWithURL(dbURL)
}

// SetupExternalTestDb uses the database given by the env var TESTDB_URL
func SetupExternalTestDb() *pgxpool.Pool {
	return setupWithURL(os.Getenv("TESTDB_URL"))
}

func setupWithURL(dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}
	return database.InitWithURL(dbURL)
}

func ClearPlanTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from plan")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearPlanTable(pool)
}
