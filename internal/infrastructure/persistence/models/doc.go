// Package models holds the GORM models of the invoicing tables and their mappers.
// Domain types carry no ORM tags; repositories convert at the boundary.
package models
