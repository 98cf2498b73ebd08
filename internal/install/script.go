package install

import (
	"fmt"
	"strings"

	"github.com/ppkgd/ppkgd/formula"
	"github.com/ppkgd/ppkgd/internal/sysinfo"
)

// toolVersion is the value reported as PPKG_VERSION; kept in lockstep with
// the version component of receipt.ToolVersion, the receipt signature.
const toolVersion = "0.1.0"

// scriptEnv carries everything buildScript needs to render the install
// script's prelude of exported environment variables.
type scriptEnv struct {
	sysinfo.Info

	PpkgHome   string
	PackageName string
	Formula    *formula.Formula

	BinFilename string
	BinFiletype string
	BinFilepath string

	InstallDir string // installed/<packageName>, the stable link path

	DepNames []string // dependency package names, for PATH prepending
}

// buildScript renders the full script body passed to `/bin/sh -c`: a
// `set -ex` prelude, exported environment-variable assignments, a PATH
// prepend for each dependency's installed bin/ directory, then the
// formula's install text verbatim.
func buildScript(env scriptEnv) string {
	var b strings.Builder

	b.WriteString("set -ex\n")

	versionParts := strings.SplitN(toolVersion, ".", 3)
	for len(versionParts) < 3 {
		versionParts = append(versionParts, "0")
	}

	writeExport(&b, "NATIVE_OS_KIND", env.OS)
	writeExport(&b, "NATIVE_OS_TYPE", env.OS)
	writeExport(&b, "NATIVE_OS_NAME", env.Distribution)
	writeExport(&b, "NATIVE_OS_VERS", env.Version)
	writeExport(&b, "NATIVE_OS_ARCH", env.Arch)
	writeExport(&b, "NATIVE_OS_NCPU", fmt.Sprintf("%d", env.NumCPU))
	writeExport(&b, "NATIVE_OS_LIBC", env.LibcVariant)

	writeExport(&b, "PPKG_VERSION", toolVersion)
	writeExport(&b, "PPKG_VERSION_MAJOR", versionParts[0])
	writeExport(&b, "PPKG_VERSION_MINOR", versionParts[1])
	writeExport(&b, "PPKG_VERSION_PATCH", versionParts[2])
	writeExport(&b, "PPKG_HOME", env.PpkgHome)

	writeExport(&b, "PKG_SUMMARY", env.Formula.Summary)
	writeExport(&b, "PKG_WEBPAGE", env.Formula.Webpage)
	writeExport(&b, "PKG_VERSION", env.Formula.Version)
	writeExport(&b, "PKG_BIN_URL", env.Formula.BinURL)
	writeExport(&b, "PKG_BIN_SHA", env.Formula.BinSha)
	writeExport(&b, "PKG_DEP_PKG", env.Formula.DepPkg)

	writeExport(&b, "PKG_BIN_FILENAME", env.BinFilename)
	writeExport(&b, "PKG_BIN_FILETYPE", env.BinFiletype)
	writeExport(&b, "PKG_BIN_FILEPATH", env.BinFilepath)

	writeExport(&b, "PKG_INSTALL_DIR", env.InstallDir)

	for _, dep := range env.DepNames {
		fmt.Fprintf(&b, "export PATH=\"%s/installed/%s/bin:$PATH\"\n", env.PpkgHome, dep)
	}

	b.WriteString(env.Formula.Install)
	if !strings.HasSuffix(env.Formula.Install, "\n") {
		b.WriteString("\n")
	}

	return b.String()
}

func writeExport(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "export %s=%q\n", name, value)
}
