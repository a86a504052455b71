// Command ledgerd serves the token ledger and access registry over HTTP.
//
// State lives in a JSON file given by --state-path (in-memory without it).
// On a fresh ledger --genesis-admin grants the Administrator role to the
// given principal. Repeated --archive-backend URIs enable best-effort
// snapshot archival and metadata pinning through the storage backends.
package main
