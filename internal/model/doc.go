// Package model defines the domain types shared across upfetch: packages,
// releases, assets, versions, and the enums that drive provider and
// installer dispatch.
package model
