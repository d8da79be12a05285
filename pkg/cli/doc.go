/*
Package cli provides helpers shared by the relay command.

Output Formatting:

Commands print results as text or JSON depending on --output:

	format, err := cli.ParseFormat(outputFlag)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Results implementing Texter control their own text rendering.

Exit Codes:

A command returns an *ExitError to choose a specific exit status; main
passes the command's error through ExitCode.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()
*/
package cli
