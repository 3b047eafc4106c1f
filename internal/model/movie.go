package model

import "time"

// Movie is the minimal catalog record the purchase guard needs: an
// identity to hang cart items and purchases on, plus enough display
// data for cart listings.  Full catalog metadata (genres, actors,
// descriptions) lives outside this service.
//
// Fields:
//  ID         – primary key identifier.
//  Title      – display title.
//  Year       – release year.
//  PriceCents – price in cents.
//  CreatedAt  – creation timestamp.
type Movie struct {
    ID         uint64    // movies.id
    Title      string    // movies.title
    Year       uint16    // movies.year
    PriceCents uint32    // movies.price_cents
    CreatedAt  time.Time // movies.created_at
}
