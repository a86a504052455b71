package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/artledger/nft-registry-backend/accessregistry"
	"github.com/artledger/nft-registry-backend/cmd/flags"
	"github.com/artledger/nft-registry-backend/events"
	"github.com/artledger/nft-registry-backend/httpserver"
	"github.com/artledger/nft-registry-backend/interfaces"
	"github.com/artledger/nft-registry-backend/ledgerstate"
	"github.com/artledger/nft-registry-backend/storage"
	"github.com/artledger/nft-registry-backend/tokenregistry"
)

var serverFlags = append([]cli.Flag{
	flags.ListenAddrFlag,
	flags.StatePathFlag,
	flags.GenesisAdminFlag,
	flags.ArchiveBackendFlag,
	flags.LogServiceFlagFn("artledger-ledgerd"),
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "ledgerd",
		Usage: "Serve the token ledger and access registry API",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			statePath := cCtx.String(flags.StatePathFlag.Name)
			listenAddr := cCtx.String(flags.ListenAddrFlag.Name)

			// Durable store when a state path is configured, in-memory
			// otherwise.
			var store interface {
				ledgerstate.Store
				SetCommitHook(func(*ledgerstate.State))
			}
			if statePath != "" {
				fileStore, err := ledgerstate.NewFileStore(statePath, logger)
				if err != nil {
					logger.Error("Failed to open ledger state", "err", err)
					return err
				}
				store = fileStore
			} else {
				logger.Warn("No state path configured, ledger state is in memory only")
				store = ledgerstate.NewMemoryStore()
			}

			// Snapshot archival and metadata pinning share the configured
			// backends.
			var blobStorage interfaces.StorageBackend
			if uris := cCtx.StringSlice(flags.ArchiveBackendFlag.Name); len(uris) > 0 {
				locations := make([]interfaces.StorageBackendLocation, len(uris))
				for i, uri := range uris {
					locations[i] = interfaces.StorageBackendLocation(uri)
				}

				factory := storage.NewFactory(logger)
				multi, err := factory.CreateMultiBackend(locations)
				if err != nil {
					logger.Error("Failed to create archive backends", "err", err)
					return err
				}
				blobStorage = multi

				archiver := storage.NewArchiver(multi, 30*time.Second, logger)
				store.SetCommitHook(archiver.CommitHook())
				logger.Info("Snapshot archival enabled", "location", multi.LocationURI())
			}

			sink := events.NewSlogSink(logger)
			access := accessregistry.New(store, sink, logger)

			if adminHex := cCtx.String(flags.GenesisAdminFlag.Name); adminHex != "" {
				adminPrincipal, err := interfaces.NewPrincipalFromHex(adminHex)
				if err != nil {
					logger.Error("Invalid genesis admin principal", "err", err)
					return err
				}
				if err := access.Bootstrap(adminPrincipal); err != nil {
					logger.Error("Failed to bootstrap administrator", "err", err)
					return err
				}
			}

			caps := tokenregistry.NewCapabilitySet()
			ledger := tokenregistry.New(store, access, sink, caps, logger)

			handler := httpserver.NewHandler(ledger, access, caps, blobStorage, nil, logger)
			server, err := httpserver.New(flags.ConfigureServer(cCtx, logger, listenAddr), handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
