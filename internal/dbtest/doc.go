/*
Package dbtest starts throwaway database containers for tests, on top of the
testcontainers-go library.

Tests that need a Neo4j server but do not care how it is deployed call
SetupNeo4j. Tests that need a particular deployment should use the
testcontainers-go modules directly instead.

A failed test normally tears its container down. To keep it running for manual
inspection, pass the inspect flag:

	go test -dbtest.inspect ./neo4jontology

This package is intended to be used in tests only.
*/
package dbtest
