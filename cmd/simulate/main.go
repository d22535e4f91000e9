// Command simulate is the operator-facing CLI for this execution host:
// it inspects compiled artifacts, runs one-shot deploys against an
// ephemeral in-memory registry, and can run a registry behind an HTTP
// daemon (see serve.go), which is where invoke is served; the one-shot
// invoke command only returns an error. Command tree shape
// follows the teacher's cmd/synnergy/main.go (a bare cobra root plus
// one AddCommand per concern); the daemon half follows
// cmd/cli/virtual_machine.go's vmInit/vmHandleStart idiom.
package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	core "wasmhost/core"
)

func main() {
	root := &cobra.Command{Use: "simulate", Short: "wasm contract execution host CLI"}
	root.AddCommand(inspectCmd())
	root.AddCommand(deployCmd())
	root.AddCommand(invokeCmd())
	root.AddCommand(serveCmd())
	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func readWasm(path string) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return b, nil
	}
	return os.ReadFile(path)
}

func parseVersion(v int) (core.StateVersion, error) {
	switch v {
	case 0:
		return core.V0, nil
	case 1:
		return core.V1, nil
	default:
		return 0, fmt.Errorf("invalid state version %d, want 0 or 1", v)
	}
}

func parseAccount(s string) (core.AccountAddress, error) {
	var a core.AccountAddress
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("decode account hex: %w", err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("account address must be %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

func inspectCmd() *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "inspect <wasm-file>",
		Short: "validate a compiled module and list its exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sv, err := parseVersion(version)
			if err != nil {
				return err
			}
			code, err := readWasm(args[0])
			if err != nil {
				return err
			}
			d := core.NewDriver(core.NewRegistry())
			art, err := d.Compile(sv, code)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Version uint8    `json:"version"`
				Init    []string `json:"init_exports"`
				Receive []string `json:"receive_exports"`
				Other   []string `json:"other_exports"`
			}{uint8(art.Version), art.InitNames, art.RecvNames, art.OtherNames})
		},
	}
	cmd.Flags().IntVar(&version, "version", 1, "contract state version (0 or 1)")
	return cmd
}

func deployCmd() *cobra.Command {
	var version int
	var contractName, ownerHex, paramHex string
	var amount uint64
	var energy uint64
	cmd := &cobra.Command{
		Use:   "deploy <wasm-file>",
		Short: "deploy a contract to an ephemeral in-memory registry and run its init entrypoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sv, err := parseVersion(version)
			if err != nil {
				return err
			}
			code, err := readWasm(args[0])
			if err != nil {
				return err
			}
			owner, err := parseAccount(ownerHex)
			if err != nil {
				return err
			}
			param, err := hex.DecodeString(paramHex)
			if err != nil {
				return fmt.Errorf("decode param hex: %w", err)
			}
			reg := core.NewRegistry()
			d := core.NewDriver(reg)
			result, err := core.Deploy(d, reg, sv, code, contractName, owner, param, core.Amount(amount), core.ChainMetadata{}, energy)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().IntVar(&version, "version", 1, "contract state version (0 or 1)")
	cmd.Flags().StringVar(&contractName, "contract", "", "contract name (matches init_<name> export)")
	cmd.Flags().StringVar(&ownerHex, "owner", "", "hex-encoded 32-byte owner account address")
	cmd.Flags().StringVar(&paramHex, "param", "", "hex-encoded init parameter")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount credited to the new instance")
	cmd.Flags().Uint64Var(&energy, "energy", 1_000_000, "energy limit for the init call")
	cmd.MarkFlagRequired("contract")
	cmd.MarkFlagRequired("owner")
	return cmd
}

// invokeCmd exists for completeness of the one-shot CLI surface but a
// deploy+invoke pair only makes sense against the same Registry, so in
// practice this is exercised through the serve daemon (see serve.go)
// rather than as two independent CLI invocations.
func invokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "invoke a deployed contract (requires a running daemon; see 'simulate serve')",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("invoke requires a running daemon, use the HTTP API exposed by 'simulate serve'")
		},
	}
	return cmd
}
