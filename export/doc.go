// Package export generates the sample artifacts consumed by model-format
// readers: for each task it builds a synthetic dataset, trains a booster,
// scores rows and writes three files.
//
//	<root>/<task>/<model file>   XGBoost JSON model
//	<root>/<task>/X.csv          the scored feature rows
//	<root>/<task>/y.csv          raw margins for those rows
//
// Two presets exist. SampleConfig writes illustrative, unseeded artifacts
// trained and scored on the full dataset. TestConfig writes seeded,
// reproducible fixtures trained on the first half of the rows and scored on
// the second half.
package export
