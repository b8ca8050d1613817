// Package properties is the registry of rental properties under
// management.
//
// Each record couples a provider property to the lock guarding it: the
// lock brand, the lock's display name inside that brand's app, and for
// hub-based brands the location the lock lives in. Only active records
// take part in sync runs.
//
// The registry lives in MySQL. Seed documents can be imported from
// object storage with the Importer.
package properties
