// Package database handles the property registry database connection.
//
// It provides a wrapper around GORM to properly configure MySQL connections
// based on the application's configuration. The registry holds one row per
// managed property (see feature/properties); the engine itself never
// persists device state here, the lock is the sole source of truth.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
