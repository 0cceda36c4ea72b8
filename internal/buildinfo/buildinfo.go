// Package buildinfo holds the identifiers the server reports about
// itself, shared between the CLI's --version flag and the HELLO command's
// reply payload so the two surfaces can never disagree.
package buildinfo

// Name is the product name reported by HELLO and --version.
const Name = "redflake"

// Version is the product version reported by HELLO and --version. It is
// overridable at build time via:
//
//	go build -ldflags "-X github.com/redflake/redflake/internal/buildinfo.Version=1.2.3"
var Version = "dev"
