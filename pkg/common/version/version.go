package version

import "fmt"

const (
	// Base is the base version of the agent. Release builds override gittag.
	Base = "0.1.0"
)

var (
	// gittag and githash are set at link time with -ldflags -X.
	gittag  = ""
	githash = "unk"
)

func Version() string {
	if gittag == "" {
		return fmt.Sprintf("%s-dev-%s", Base, githash)
	}
	return gittag
}
