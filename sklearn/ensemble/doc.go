// Package ensemble implements gradient boosted regression trees.
//
// The engine grows depth-limited trees additively on a squared error
// objective. Each round fits a tree to the gradients and hessians of the
// current ensemble prediction, using a per-tree row sample and a per-tree
// column sample drawn from a seeded generator, so that training is
// reproducible for a given seed. Leaf weights carry both L1 (soft
// threshold on the gradient sum) and L2 (hessian damping) regularisation.
//
// Basic usage:
//
//	params := ensemble.DefaultTrainingParams()
//	reg := ensemble.NewGradientBoostingRegressor(params)
//	if err := reg.FitContext(ctx, X, y); err != nil {
//	    return err
//	}
//	pred, _ := reg.Predict(Xtest)
//
// A fitted Model serialises to JSON with every float encoded in its
// shortest exact form, so a decoded model predicts bit-for-bit identically.
package ensemble
