// Package datasets generates labeled synthetic datasets with the semantics of
// scikit-learn's make_regression and make_classification.
//
// Both generators draw from a math/rand/v2 PCG source. Passing WithRandomState
// makes the output reproducible; without it every call uses a fresh seed.
//
//	ds, err := datasets.MakeClassification(100, 10,
//	    datasets.WithNClasses(3),
//	    datasets.WithNInformative(7),
//	    datasets.WithRandomState(0),
//	)
//	train, test := datasets.SplitHalf(ds)
package datasets
