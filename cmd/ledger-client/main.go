// Command ledger-client is an operator CLI wrapping the ledger HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/artledger/nft-registry-backend/cmd/flags"
	"github.com/artledger/nft-registry-backend/httpserver"
	"github.com/artledger/nft-registry-backend/interfaces"
)

func main() {
	app := &cli.App{
		Name:  "ledger-client",
		Usage: "operate on a running ledger server",
		Flags: []cli.Flag{
			flags.ServerURLFlag,
			flags.CallerFlag,
		},
		Commands: []*cli.Command{
			{
				Name:      "mint",
				Usage:     "mint a token for a recipient",
				ArgsUsage: "<to-hex> <uri>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 2 {
						return fmt.Errorf("expected <to-hex> <uri>")
					}
					return newClient(cCtx).post("/api/ledger/mint", map[string]any{
						"to":  cCtx.Args().Get(0),
						"uri": cCtx.Args().Get(1),
					})
				},
			},
			{
				Name:      "transfer",
				Usage:     "transfer a token",
				ArgsUsage: "<from-hex> <to-hex> <token-id>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 3 {
						return fmt.Errorf("expected <from-hex> <to-hex> <token-id>")
					}
					id, err := strconv.ParseUint(cCtx.Args().Get(2), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid token id: %w", err)
					}
					return newClient(cCtx).post("/api/ledger/transfer", map[string]any{
						"from":     cCtx.Args().Get(0),
						"to":       cCtx.Args().Get(1),
						"token_id": id,
					})
				},
			},
			{
				Name:      "burn",
				Usage:     "burn an owned token",
				ArgsUsage: "<token-id>",
				Action: func(cCtx *cli.Context) error {
					id, err := strconv.ParseUint(cCtx.Args().Get(0), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid token id: %w", err)
					}
					return newClient(cCtx).post("/api/ledger/burn", map[string]any{"token_id": id})
				},
			},
			{
				Name:      "grant-role",
				Usage:     "grant a role to a principal",
				ArgsUsage: "<role> <principal-hex>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 2 {
						return fmt.Errorf("expected <role> <principal-hex>")
					}
					if _, err := interfaces.ParseRole(cCtx.Args().Get(0)); err != nil {
						return err
					}
					return newClient(cCtx).post("/api/access/roles", map[string]any{
						"role":      cCtx.Args().Get(0),
						"principal": cCtx.Args().Get(1),
					})
				},
			},
			{
				Name:      "affiliate",
				Usage:     "link a gallery to an artist",
				ArgsUsage: "<gallery-hex> <artist-hex>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 2 {
						return fmt.Errorf("expected <gallery-hex> <artist-hex>")
					}
					return newClient(cCtx).post("/api/access/affiliations", map[string]any{
						"gallery": cCtx.Args().Get(0),
						"artist":  cCtx.Args().Get(1),
					})
				},
			},
			{
				Name:      "token",
				Usage:     "show token info",
				ArgsUsage: "<token-id>",
				Action: func(cCtx *cli.Context) error {
					return newClient(cCtx).get("/api/ledger/tokens/" + cCtx.Args().Get(0))
				},
			},
			{
				Name:  "supply",
				Usage: "show collection supply",
				Action: func(cCtx *cli.Context) error {
					return newClient(cCtx).get("/api/ledger/supply")
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type client struct {
	serverURL string
	caller    string
}

func newClient(cCtx *cli.Context) *client {
	return &client{
		serverURL: cCtx.String(flags.ServerURLFlag.Name),
		caller:    cCtx.String(flags.CallerFlag.Name),
	}
}

func (c *client) post(path string, body map[string]any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.serverURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpserver.CallerHeader, c.caller)

	return c.do(req)
}

func (c *client) get(path string) error {
	req, err := http.NewRequest(http.MethodGet, c.serverURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

func (c *client) do(req *http.Request) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	fmt.Println(string(respBody))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
