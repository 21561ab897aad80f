package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/krishichain/internal/domain/models"
	"github.com/mamadbah2/krishichain/internal/ledger"
	"github.com/mamadbah2/krishichain/internal/repository/sqlite"
	"github.com/mamadbah2/krishichain/pkg/clients/ledgerapi"
	"github.com/mamadbah2/krishichain/pkg/logger"
)

type rootOptions struct {
	apiURL   string
	dbPath   string
	timeout  time.Duration
	logLevel string
}

// serviceOpener resolves the ledger a command talks to and a cleanup func.
type serviceOpener func(ctx context.Context) (ledger.Service, func(), error)

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Operate a KrishiChain produce ledger",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", "", "remote ledger API base URL, e.g. http://localhost:8080/api")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "local SQLite ledger file (used when --api is empty)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "request timeout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for local ledgers")

	open := func(ctx context.Context) (ledger.Service, func(), error) {
		return openService(ctx, opts)
	}

	root.AddCommand(
		newRegisterCommand(open),
		newDistributeCommand(open),
		newRetailCommand(open),
		newVerifyCommand(open),
		newLookupCommand(open),
		newTraceCommand(open),
		newListCommand(open),
	)
	return root
}

func openService(ctx context.Context, opts *rootOptions) (ledger.Service, func(), error) {
	if opts.apiURL != "" {
		return ledgerapi.NewClient(opts.apiURL, opts.timeout), func() {}, nil
	}
	if opts.dbPath == "" {
		return nil, nil, errors.New("either --api or --db must be set")
	}

	log, err := logger.New(opts.logLevel)
	if err != nil {
		return nil, nil, err
	}

	store, err := sqlite.Open(ctx, opts.dbPath, logger.Named(log, "repo.sqlite"))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("close sqlite store", zap.Error(err))
		}
		_ = log.Sync()
	}
	return ledger.New(store, logger.Named(log, "ledger")), cleanup, nil
}

func withService(cmd *cobra.Command, open serviceOpener, fn func(ctx context.Context, svc ledger.Service) (interface{}, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, cleanup, err := open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := fn(ctx, svc)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRegisterCommand(open serviceOpener) *cobra.Command {
	var origin models.OriginFacts

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register produce at the farmer stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, open, func(ctx context.Context, svc ledger.Service) (interface{}, error) {
				code, err := svc.Create(ctx, origin)
				if err != nil {
					return nil, err
				}
				return models.CodeResponse{QRCode: code}, nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&origin.ProductName, "product", "", "product name")
	f.StringVar(&origin.Quantity, "quantity", "", "quantity, e.g. 100kg")
	f.StringVar(&origin.FarmLocation, "location", "", "harvest location")
	f.StringVar(&origin.HarvestDate, "harvest-date", "", "harvest date (YYYY-MM-DD)")
	f.StringVar(&origin.FarmerName, "farmer", "", "farmer name")
	f.Float64Var(&origin.FarmerPrice, "price", 0, "farmer price per unit")
	f.StringVar(&origin.Category, "category", "", "product category")
	f.StringVar(&origin.Unit, "unit", "", "quantity unit")
	f.StringVar(&origin.FarmingMethod, "method", "", "farming method")
	return cmd
}

func newDistributeCommand(open serviceOpener) *cobra.Command {
	var facts models.DistributionFacts

	cmd := &cobra.Command{
		Use:   "distribute CODE",
		Short: "Attach distributor data to a farmer-stage record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc ledger.Service) (interface{}, error) {
				code, err := svc.TransitionToDistribution(ctx, args[0], facts)
				if err != nil {
					return nil, err
				}
				return models.CodeResponse{QRCode: code, PreviousCode: args[0]}, nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&facts.DistributorName, "distributor", "", "distributor name")
	f.StringVar(&facts.StorageLocation, "storage", "", "storage location")
	f.IntVar(&facts.QualityRating, "rating", 0, "quality rating 1-5")
	f.StringVar(&facts.TransportDate, "transport-date", "", "transport date (YYYY-MM-DD)")
	f.StringVar(&facts.TransportMethod, "transport-method", "", "transport method")
	return cmd
}

func newRetailCommand(open serviceOpener) *cobra.Command {
	var facts models.RetailFacts

	cmd := &cobra.Command{
		Use:   "retail CODE",
		Short: "Attach retailer data to a distributed record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc ledger.Service) (interface{}, error) {
				code, err := svc.TransitionToRetail(ctx, args[0], facts)
				if err != nil {
					return nil, err
				}
				return models.CodeResponse{QRCode: code, PreviousCode: args[0]}, nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&facts.ShopName, "shop", "", "shop name")
	f.Float64Var(&facts.FinalPrice, "price", 0, "final price")
	f.StringVar(&facts.RetailLocation, "location", "", "retail location")
	return cmd
}

func newVerifyCommand(open serviceOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "verify CODE",
		Short: "Mark a retailed record as verified by the customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc ledger.Service) (interface{}, error) {
				if err := svc.MarkVerified(ctx, args[0]); err != nil {
					return nil, err
				}
				return svc.Lookup(ctx, args[0])
			})
		},
	}
}

func newLookupCommand(open serviceOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup CODE",
		Short: "Show the record behind an active code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc ledger.Service) (interface{}, error) {
				return svc.Lookup(ctx, args[0])
			})
		},
	}
}

func newTraceCommand(open serviceOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "trace CODE",
		Short: "Show the record behind an active or retired code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc ledger.Service) (interface{}, error) {
				return svc.Trace(ctx, args[0])
			})
		},
	}
}

func newListCommand(open serviceOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "list ROLE|STAGE|all",
		Short: "List records for a role (farmer, distributor, retailer, customer), a stage, or all",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "all" {
				return withService(cmd, open, func(ctx context.Context, svc ledger.Service) (interface{}, error) {
					return svc.Snapshot(ctx)
				})
			}

			stage, err := models.StageForRole(args[0])
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			return withService(cmd, open, func(ctx context.Context, svc ledger.Service) (interface{}, error) {
				return svc.ListByStage(ctx, stage)
			})
		},
	}
}
