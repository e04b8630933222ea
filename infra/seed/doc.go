// Package seed holds the SQL backed implementations of the historical ride
// store. Importing it registers the "mysql", "postgis" and "sqlite" sink
// types with core/seed.
package seed
