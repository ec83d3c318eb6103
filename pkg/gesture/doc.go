// Package gesture is the prediction core: it turns a raw glide across a
// keyboard layout into a ranked list of candidate words.
//
// A predict call runs four stages. The stroke is normalized into
// keyboard-relative space, smoothed, and resampled to a fixed point count.
// Candidates are pruned from the dictionary by the keys nearest the
// stroke's endpoints and by path length. Survivors are scored on two
// channels: shape, which compares the paths after each is renormalized
// into its own bounding box and so ignores where and how large the glide
// was drawn, and location, which compares the paths exactly where they
// lie on the keyboard. Each channel's mean pointwise distance becomes a
// probability through a Gaussian kernel, and the product with the word's
// combined corpus and personal frequency ranks the result.
//
// The engine holds no I/O. Dictionaries, layouts, and the personal
// frequency store are injected, and everything on the predict path is
// in-memory work bounded by the candidate cap.
package gesture
