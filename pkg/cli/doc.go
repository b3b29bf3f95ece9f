/*
Package cli provides command-line interface utilities for Themis.

The cli package includes output formatters, typed command errors, and
signal helpers used by the themis command.

Output Formatting:

Command results can be rendered as plain text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	data := MyCommandResult{...}
	if err := formatter.FormatTo(os.Stdout, data); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	sig := <-cli.WaitForShutdown()
	// Drain sessions and stop servers, then exit
*/
package cli
