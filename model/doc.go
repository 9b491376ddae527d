// Package model defines the provenance record aggregate, its embedded
// usage policy, and the stable error taxonomy shared by every layer.
//
// Records are immutable after creation. There is no update path: a record
// is created once by a successful sign-and-submit and destroyed only
// through the signature-authorized delete protocol.
package model
