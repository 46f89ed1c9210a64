// Package environment names the deployment environments and normalizes the
// APP_ENV value, so logging and billing sandboxes pick consistent defaults.
//
//	env := environment.Parse(os.Getenv("APP_ENV")) // "prod" -> Production
//	if !env.IsProduction() {
//	    // use the billing provider sandbox
//	}
package environment
