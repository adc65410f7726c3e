package compiler

import "github.com/davecgh/go-spew/spew"

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

// Dump renders v for debug logging.
func Dump(v any) string {
	return spewConfig.Sdump(v)
}
