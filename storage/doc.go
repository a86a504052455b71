// Package storage provides content-addressed blob backends for ledger
// snapshot archival and token metadata pinning.
//
// Content is identified by the SHA-256 hash of its bytes, so any backend
// holding the content can serve it and replicas across backends are
// interchangeable. Three backends are supported, selected by location URI:
//
//	file:///var/lib/artledger              local filesystem
//	s3://bucket/prefix?region=us-east-1    Amazon S3 or compatible
//	ipfs://127.0.0.1:5001                  IPFS node
//
// The factory turns URIs into backends; CreateMultiBackend aggregates
// several into one replicating backend that stores everywhere available and
// fetches from the first backend that has the content.
package storage
