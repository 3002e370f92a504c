// Package tsp implements the client side of the RFC 3161 time-stamp protocol.
//
// A Client submits DER-encoded queries to a timestamp authority over HTTPS.
// Verify checks a reply independently of the transport: the CMS signature and the
// signer's certificate chain are validated against a trust anchor, then the
// message imprint of the token is matched against a query or a raw payload.
//
// Render functions decode queries and replies for audit output only.
package tsp
