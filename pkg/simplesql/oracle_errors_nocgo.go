//go:build !cgo

package simplesql

// godror needs cgo; without it only the message is available.
func oraErrorCode(err error) string { return oraCodeFromMessage(err) }
