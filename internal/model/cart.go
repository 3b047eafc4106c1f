package model

import "time"

// CartItem marks a movie as pending purchase for an account.  The
// (user, movie) pair is unique and mutually exclusive with a
// Purchase row for the same pair: completing a purchase removes the
// cart item in the same transaction that records the purchase.
//
// Fields:
//  ID      – primary key identifier.
//  UserID  – account owning the cart.
//  MovieID – movie placed in the cart.
//  AddedAt – when the item was added.
type CartItem struct {
    ID      uint64    // cart_items.id
    UserID  uint64    // cart_items.user_id
    MovieID uint64    // cart_items.movie_id
    AddedAt time.Time // cart_items.added_at
}

// Purchase records a completed movie purchase.  Rows are immutable
// once written; their existence blocks deleting the movie and blocks
// the purchaser from re-adding it to a cart.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – purchasing account.
//  MovieID     – purchased movie.
//  PurchasedAt – completion timestamp.
type Purchase struct {
    ID          uint64    // purchases.id
    UserID      uint64    // purchases.user_id
    MovieID     uint64    // purchases.movie_id
    PurchasedAt time.Time // purchases.purchased_at
}
