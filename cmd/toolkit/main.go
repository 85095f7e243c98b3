// Command toolkit loads a transaction library and runs its operations.
//
//	toolkit --wasm transaction_library.wasm info
//	toolkit --wasm transaction_library.wasm ops
//	toolkit --wasm transaction_library.wasm call compile_transaction_intent intent.json
//	echo '{"address":"..."}' | toolkit --wasm transaction_library.wasm call decode_address -
//	toolkit --wasm transaction_library.wasm interactive
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/transaction-toolkit/engine"
	"github.com/wippyai/transaction-toolkit/service"
)

const envWasm = "TOOLKIT_WASM"

var (
	flagWasm       string
	flagMinVersion string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "toolkit",
	Short:         "Run the operations of a transaction library",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagWasm, "wasm", "w", os.Getenv(envWasm), "Path to the transaction library wasm file")
	rootCmd.PersistentFlags().StringVar(&flagMinVersion, "min-version", "", "Version constraint the library must satisfy")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log engine and bridge activity to stderr")

	rootCmd.AddCommand(infoCmd, opsCmd, callCmd, interactiveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openService loads the library named by --wasm.
func openService(ctx context.Context) (*service.Service, error) {
	if flagWasm == "" {
		return nil, fmt.Errorf("no library given: set --wasm or %s", envWasm)
	}

	cfg := &service.Config{
		Engine:     &engine.Config{EnableWASI: true},
		PoolSize:   1,
		MinVersion: flagMinVersion,
	}
	if flagVerbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		cfg.Logger = log
	}
	return service.NewFromFile(ctx, flagWasm, cfg)
}
