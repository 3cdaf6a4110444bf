// Package metrics implements the evaluation metrics reported while boosting
// and by artifact verification.
//
// Names follow XGBoost's eval_metric vocabulary; Evaluate dispatches on them.
package metrics
