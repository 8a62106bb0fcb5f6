// Package main - herramienta de línea de comandos para correr una
// conciliación directamente contra el almacén, sin pasar por la API HTTP.
// Pensada para cargas manuales y para operar durante incidentes.
//
// Uso:
//
//	reconcile -file pagos_marzo.csv -month 3 -year 2025 -program TUTORES -user operador@pem
//	reconcile -reverse <upload-id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pem-hub/pem-payments-hub/config"
	"github.com/pem-hub/pem-payments-hub/internal/application/command"
	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
	"github.com/pem-hub/pem-payments-hub/internal/domain/reconciliation"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/internal/infrastructure/persistence/postgres"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

func main() {
	var (
		filePath  = flag.String("file", "", "archivo de pago delimitado a conciliar")
		month     = flag.Int("month", 0, "mes del período objetivo (1-12)")
		year      = flag.Int("year", 0, "año del período objetivo")
		program   = flag.String("program", "", "programa: EMPLEO_JOVEN, PROMOVER o TUTORES")
		user      = flag.String("user", "cli", "usuario que dispara la conciliación")
		act       = flag.String("act", "", "acto administrativo para las altas (opcional)")
		reverseID = flag.String("reverse", "", "ID del lote a revertir (ignora el resto de los flags)")
		timeout   = flag.Duration("timeout", 5*time.Minute, "tiempo máximo de la operación")
	)
	flag.Parse()

	if err := run(*filePath, *month, *year, *program, *user, *act, *reverseID, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(filePath string, month, year int, programRaw, user, act, reverseID string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{Output: os.Stderr, Level: logger.LevelWarn})

	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		pgCfg := postgres.DefaultConfig()
		pgCfg.Host = cfg.Database.Host
		pgCfg.Port = cfg.Database.Port
		pgCfg.Database = cfg.Database.Name
		pgCfg.User = cfg.Database.User
		pgCfg.Password = cfg.Database.Password
		pgCfg.SSLMode = cfg.Database.SSLMode
		dbConn, err = postgres.NewConnection(ctx, pgCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	participantRepo := postgres.NewParticipantRepository(dbConn)
	pricingRepo := postgres.NewPricingRepository(dbConn)
	paymentRepo := postgres.NewPaymentRepository(dbConn)
	noveltyRepo := postgres.NewNoveltyRepository(dbConn)
	uploadRepo := postgres.NewUploadRepository(dbConn)
	writer := postgres.NewBatchCommitter(dbConn, cfg.Reconciliation.MaxBatchOps)
	resolver := pricing.NewResolver(pricingRepo)

	if reverseID != "" {
		return runReversal(ctx, reverseID, uploadRepo, paymentRepo, noveltyRepo, writer, log)
	}

	if filePath == "" {
		return errors.New("se requiere -file (o -reverse para revertir un lote)")
	}

	prog, err := participant.ParseProgram(programRaw)
	if err != nil {
		return fmt.Errorf("programa inválido %q", programRaw)
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("no se pudo leer el archivo: %w", err)
	}

	handler := command.NewRunReconciliationHandler(
		participantRepo, paymentRepo, resolver, writer, shared.NopPublisher{}, log)

	result, err := handler.Handle(ctx, command.RunReconciliationCommand{
		RawText:    string(raw),
		Month:      month,
		Year:       year,
		Program:    prog,
		UploadedBy: user,
		Act:        shared.ActReference(act),
	})
	if err != nil {
		var report *reconciliation.BlockReport
		if errors.As(err, &report) {
			printBlockReport(report)
			return errors.New("conciliación bloqueada, corregir el archivo y reintentar")
		}
		return err
	}

	fmt.Printf("Conciliación aplicada: lote %s\n", result.UploadID)
	fmt.Printf("  Período:    %s (%s)\n", result.Period, result.Program)
	fmt.Printf("  Regulares:  %d\n", result.Regulars)
	fmt.Printf("  Altas:      %d\n", result.News)
	fmt.Printf("  Ausencias:  %d\n", result.Absents)
	if result.Chunks > 1 {
		fmt.Printf("  Unidades:   %d (lote grande: sin atomicidad entre unidades)\n", result.Chunks)
	}
	return nil
}

func runReversal(
	ctx context.Context,
	uploadID string,
	uploads *postgres.UploadRepository,
	payments *postgres.PaymentRepository,
	novelties *postgres.NoveltyRepository,
	writer *postgres.BatchCommitter,
	log *logger.Logger,
) error {
	handler := command.NewReverseUploadHandler(
		uploads, payments, novelties, writer, shared.NopPublisher{}, log)

	result, err := handler.Handle(ctx, command.ReverseUploadCommand{UploadID: uploadID})
	if err != nil {
		return err
	}

	fmt.Printf("Lote %s revertido\n", result.UploadID)
	fmt.Printf("  Pagos eliminados:     %d\n", result.PaymentsDeleted)
	fmt.Printf("  Ausencias restituidas: %d\n", result.AbsencesCleared)
	return nil
}

func printBlockReport(report *reconciliation.BlockReport) {
	fmt.Fprintln(os.Stderr, "La conciliación está bloqueada:")
	for _, id := range report.UnknownIDs {
		fmt.Fprintf(os.Stderr, "  documento desconocido: %s\n", id)
	}
	for _, id := range report.DuplicateIDs {
		fmt.Fprintf(os.Stderr, "  documento duplicado:   %s\n", id)
	}
	for _, issue := range report.CategoryIssues {
		fmt.Fprintf(os.Stderr, "  %s monto %s: %s\n",
			issue.NationalID, issue.Amount.String(), issue.Reason)
	}
}
