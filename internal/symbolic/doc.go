// Package symbolic provides the minimal expression-tree algebra used by the
// flatness engine.
//
// The tree is scoped to the operators the engine needs:
//
//   - [Num], [Var]: constants and the registry of base variables (x, y, z, w) and time
//   - [FlatRef]: symF(axis, order), the order-th time derivative of a flat output
//   - [Add], [Mul], [Pow]: arithmetic
//   - [Call], [Atan2]: elementary functions
//   - [Matrix]: small dense matrices of expressions with Jacobian and product
//
// Constructors ([Sum], [Product], [Power], [Apply], [NewAtan2]) fold constants
// and flatten nested sums and products, so trees built by [Diff] stay compact.
//
// # Evaluation
//
// [Eval] substitutes numbers from a [Values] context. Values are per query and
// must not be shared between goroutines; expression trees are immutable and
// may be shared freely.
package symbolic
