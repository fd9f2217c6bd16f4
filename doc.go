// Package antiox predicts the anti-oxidation level of produce from its
// colour (R, G, B), sugar content (Brix) and hardness.
//
// A gradient boosted regression tree ensemble is trained from a CSV
// dataset, persisted as a single JSON artifact and served over HTTP.
//
// # Commands
//
//   - cmd/antiox-server: loads the artifact (training and persisting it on
//     first start), then serves GET /, GET /health and POST /predict.
//   - cmd/antiox-eval: trains on a seeded 70/30 split, prints RMSE, MAE
//     and R² for the hold-out rows, and writes diagnostic plots.
//
// # Quick Start
//
//	$ DATASET_PATH=total_rgb_Brix_Hardness_AC.csv go run ./cmd/antiox-server
//	$ curl -s -X POST localhost:5000/predict \
//	    -H 'Content-Type: application/json' \
//	    -d '{"r": 200, "g": 150, "b": 100, "brix": 12.5, "hardness": 8.3}'
//	{"input":{"b":100,"brix":12.5,"g":150,"hardness":8.3,"r":200},"prediction":0.62,"status":"success"}
//
// # Packages
//
//   - internal/schema: the five-feature contract shared by every stage
//   - internal/dataset: CSV loading into gonum matrices
//   - internal/training: hyperparameters and production/evaluation fits
//   - internal/modelstore: JSON artifact persistence and the model handle
//   - internal/prediction: request validation and inference
//   - internal/evaluation: metrics, cross-validation and plots
//   - internal/server: fiber HTTP boundary
//   - internal/repository: prediction audit log (memory, SQLite, Postgres)
//   - internal/config: .env and environment configuration
//   - sklearn/ensemble: the boosted tree engine
//   - sklearn/model_selection: train/test split and K-fold
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - core/model, core/parallel: estimator state and worker helpers
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//
// # Configuration
//
// Settings come from the environment, optionally seeded from a .env file:
// PORT, DATASET_PATH, MODEL_PATH, LABEL_COLUMN, TRAINING_CONFIG, LOG_LEVEL,
// PREDICTION_LOG_URL, CORS_ORIGINS and SHUTDOWN_TIMEOUT. Hyperparameters
// may be overridden with a YAML file:
//
//	training:
//	  tree_count: 100
//	  max_depth: 4
//	  l1_regularization: 10
//	  learning_rate: 0.1
//	  row_subsample_fraction: 0.8
//	  column_subsample_fraction: 0.8
package antiox
