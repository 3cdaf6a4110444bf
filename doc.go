// Package silva generates reference artifacts for testing gradient-boosted
// tree inference engines against XGBoost.
//
// For each of three tasks (regression, binary classification and multiclass
// classification) silva synthesizes a dataset the way scikit-learn's
// make_regression and make_classification do, trains a depth-wise histogram
// booster on it, and writes three files into a per-task directory:
//
//	<root>/<task>/<model file>   XGBoost JSON model
//	<root>/<task>/X.csv          the scored feature rows
//	<root>/<task>/y.csv          raw margins for those rows
//
// Any engine that reads the model and X.csv must reproduce y.csv.
//
// # Quick Start
//
//	cfg := export.TestConfig()
//	e, err := export.NewExporter(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := e.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	reports, err := export.VerifyConfig(cfg, export.DefaultTolerance)
//
// Or from the command line:
//
//	silva gen --variant test
//	silva verify --variant test
//	silva plot test_data/xgboost/regression --out regression.png
//
// # Packages
//
//   - sklearn/datasets: synthetic regression and classification data
//   - sklearn/xgboost: training, prediction and the JSON model format
//   - metrics: evaluation metrics used during training and verification
//   - export: the run configuration, the artifact writer and the verifier
//   - visualize: histograms of exported raw scores
//   - pkg/errors, pkg/log: structured errors and logging
//
// Seeded runs (the "test" variant) are byte-for-byte reproducible.
package silva
