// Package upgrade composes the release providers, asset resolver,
// checksum verifier, archive engine and installer into the
// backup-install-rollback orchestrator behind the install and upgrade
// commands. The backup of the previous version is deleted only after the
// new version is fully placed, so any failure during the destructive
// phase can restore the exact pre-upgrade state.
package upgrade
