// Package xgboost trains gradient-boosted regression trees and reads and
// writes them in XGBoost's JSON model format.
//
// Trees are grown depth-wise on quantile histograms, XGBoost's "hist" tree
// method. Supported objectives are reg:squarederror, binary:logistic and
// multi:softprob. A model saved with Booster.Save can be loaded by XGBoost
// itself, and Load reads models written by XGBoost 1.x and 2.x that use the
// same objectives.
//
//	params := xgboost.DefaultParams()
//	params.Objective = xgboost.ObjectiveBinaryLogistic
//	dtrain, _ := xgboost.NewDMatrix(X, y)
//	booster, err := xgboost.Train(params, dtrain, 50)
//	margins, _ := booster.PredictRaw(X)
//	_ = booster.Save("xgb_model.json")
package xgboost
