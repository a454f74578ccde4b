//go:build cgo

package simplesql

import (
	"fmt"

	"github.com/godror/godror"
)

func oraErrorCode(err error) string {
	if oe, ok := godror.AsOraErr(err); ok && oe.Code() != 0 {
		return fmt.Sprintf("ORA-%05d", oe.Code())
	}
	return oraCodeFromMessage(err)
}
