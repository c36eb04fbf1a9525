/*
Package config loads the run configuration for uploadrc.

🎯 Purpose:
- Reads configuration from JSON, YAML, HCL or an extension-less .uploadrc
- Validates values and fills in defaults
- Carries the injected tables (category overrides, denylist, ignore patterns)

🔄 Flow:
1. Reads configuration from file
2. Parses format-specific syntax (parser chosen by extension)
3. Validates configuration values and applies defaults
4. CLI flags override the loaded values

⚡ Key Responsibilities:
- input_root and output_root are required and must differ
- cleanup is one of keep, move, remove-batch
- upload_timeout is a Go duration string ("45s", "2m")
- ignore_patterns are doublestar globs matched against file names

🔍 Example (YAML):

	input_root: /data/staged
	output_root: /data/processed
	bucket: onboarding-prod
	region: ca-central-1
	use_ssm: true
	environment: prod
	category_overrides:
	  Client Void Cheques: Void Cheques
	denylist: ["DO NOT UPLOAD"]
	ignore_patterns: [".DS_Store", "*.tmp"]
	cleanup: keep
	concurrency: 4
	upload_timeout: 45s

🔍 Example (HCL):

	input_root  = "/data/staged"
	output_root = "/data/processed"

	remote {
	  bucket      = env.S3_BUCKET
	  environment = "prod"
	  use_ssm     = true
	}

	category_overrides = {
	  "Client Void Cheques" = "Void Cheques"
	}
*/
package config
