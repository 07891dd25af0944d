// migrate aplica o consulta las migraciones de PostgreSQL embebidas en el binario.
//
// Uso: go run ./cmd/migrate [up|status]
// Sin argumentos ejecuta "up".
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	switch cmd {
	case "up":
		err = postgres.Migrate(ctx, pool)
	case "status":
		err = postgres.MigrationStatus(ctx, pool)
	default:
		fmt.Fprintf(os.Stderr, "Comando desconocido %q (use up|status)\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("cmd", cmd).Msg("migraciones")
		os.Exit(1)
	}
	log.Info().Str("cmd", cmd).Msg("migraciones completadas")
}
