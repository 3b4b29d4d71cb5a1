// Comando projector: pliega el libro de movimientos completo fuera de línea y
// imprime la proyección resultante. Útil para verificar saldos y diagnosticar
// registros omitidos sin levantar la API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/projection"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Almacen-api/pkg/config"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

func main() {
	activeOnly := flag.Bool("active", false, "solo posiciones con saldo > 0")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "warn"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	records, err := postgres.NewLedgerRepo(pool).ListAll()
	if err != nil {
		log.Fatal().Err(err).Msg("leer libro de movimientos")
	}

	result := projection.Project(records, projection.Options{
		AccountedWarehouses: cfg.Inventory.AccountedWarehouses,
		SentinelActor:       cfg.Inventory.SentinelActor,
		MaxAttachments:      cfg.Inventory.MaxAttachments,
	})

	snaps := result.Snapshots
	if *activeOnly {
		snaps = result.Active()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tBODEGA\tDIRECCIÓN\tSALDO\tMÍNIMO\tCRÍTICO\tDIVERGENTE")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\t%v\n",
			s.Key.ItemCode, s.Key.Warehouse, s.Key.Address,
			s.Balance.String(), s.MinStock.String(), s.IsCritical, s.IsDivergent)
	}
	w.Flush()

	fmt.Printf("\n%d registros plegados, %d posiciones", len(records), len(snaps))
	if len(result.Skipped) > 0 {
		fmt.Printf(", %d registros omitidos:\n", len(result.Skipped))
		for _, sk := range result.Skipped {
			fmt.Printf("  - %s (%s): %s\n", sk.RecordID, sk.ItemCode, sk.Reason)
		}
	} else {
		fmt.Println()
	}
}
