// Polaris is a rule lifecycle and compliance engine for visa requirements.
//
// It fetches official source pages on a schedule, extracts structured
// requirement rules through an LLM oracle, queues the extracted rules for
// human review, versions every approved rule set, and grades submitted
// documents against the active rules with a deterministic evaluator.
//
// Usage:
//
//	# Start the server and scheduled pipeline
//	polaris run
//
//	# Start with a custom configuration file
//	polaris run --config /etc/polaris/config.yaml
//
//	# Run the fetch/extract pipeline once, outside the schedule
//	polaris pipeline run
//
//	# Inspect the source registry
//	polaris sources list
//
//	# Review extracted rule candidates
//	polaris candidates list --state pending
//	polaris candidates approve <id> --actor alice
//
//	# Show the active rule set for a country/category pair
//	polaris rulesets active --country DE --category student
package main

func main() {
	Execute()
}
