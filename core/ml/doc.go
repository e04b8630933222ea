// Package ml implements the three statistical models used by RideFair on top
// of gonum: an ordinary least squares regressor, an L2 penalised logistic
// classifier and a k-means clusterer. Fitted models are plain structs with
// exported, JSON tagged parameters so they can be persisted and reloaded
// without loss. Once fitted a model is never mutated and is safe for
// concurrent use.
package ml
