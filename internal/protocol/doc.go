// Package protocol defines the JSON wire envelope and its payload variants.
//
// Inbound messages are parsed into a closed tagged union (Inbound) at the
// boundary; unknown tags or malformed payloads are rejected here so routing
// logic never sees untyped data. Outbound builders attach fresh timestamps
// and server-side identifiers.
package protocol
