// Package install places resolved artifacts into the managed directory
// layout and undoes that placement on removal. Each filetype has its own
// handler: AppImages and plain binaries are moved and marked executable,
// compressed files are expanded first, and archives are extracted into
// the archives root with PATH integration and an executable probe.
package install
