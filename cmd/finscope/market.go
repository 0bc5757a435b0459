package main

import (
	"context"

	"github.com/newthinker/finscope/internal/collector"
	"github.com/newthinker/finscope/internal/core"
	"github.com/newthinker/finscope/internal/router"
	"github.com/spf13/cobra"
)

// symbolCommand builds a "<use> SYMBOL [--provider P]" command that prints
// the result of op, a facade method expression such as router.Facade.Quote.
func symbolCommand[T any](use, short string, op func(router.Facade, context.Context, string, core.Provider) (*T, error)) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   use + " SYMBOL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, log, err := newApp()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			out, err := op(a.Facade(), cmd.Context(), args[0], core.Provider(provider))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "provider to use instead of the configured route")
	return cmd
}

var (
	seriesProvider   string
	seriesInterval   string
	seriesOutputSize int
	seriesAscending  bool

	indicatorProvider   string
	indicatorInterval   string
	indicatorTimePeriod int
	indicatorOutputSize int
)

var seriesCmd = &cobra.Command{
	Use:   "series SYMBOL",
	Short: "Print historical OHLCV bars",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeries,
}

var indicatorCmd = &cobra.Command{
	Use:   "indicator sma|rsi|ema SYMBOL",
	Short: "Print a technical indicator computed upstream",
	Args:  cobra.ExactArgs(2),
	RunE:  runIndicator,
}

func init() {
	rootCmd.AddCommand(
		symbolCommand("quote", "Print a real-time quote", router.Facade.Quote),
		symbolCommand("price", "Print the latest traded price", router.Facade.Price),
		symbolCommand("overview", "Print the company profile and fundamentals", router.Facade.CompanyOverview),
		symbolCommand("earnings", "Print annual and quarterly earnings", router.Facade.Earnings),
		symbolCommand("target", "Print the analyst price target", router.Facade.PriceTarget),
		symbolCommand("sentiment", "Print the analyst recommendation", router.Facade.AnalystSentiment),
	)

	seriesCmd.Flags().StringVarP(&seriesProvider, "provider", "p", "", "provider to use instead of the configured route")
	seriesCmd.Flags().StringVarP(&seriesInterval, "interval", "i", string(collector.DefaultInterval), "bar size")
	seriesCmd.Flags().IntVarP(&seriesOutputSize, "outputsize", "n", collector.DefaultOutputSize, "number of bars")
	seriesCmd.Flags().BoolVar(&seriesAscending, "asc", false, "order bars oldest first")
	rootCmd.AddCommand(seriesCmd)

	indicatorCmd.Flags().StringVarP(&indicatorProvider, "provider", "p", "", "provider to use instead of the configured route")
	indicatorCmd.Flags().StringVarP(&indicatorInterval, "interval", "i", string(collector.DefaultInterval), "bar size")
	indicatorCmd.Flags().IntVarP(&indicatorTimePeriod, "time-period", "t", collector.DefaultTimePeriod, "bars per indicator value")
	indicatorCmd.Flags().IntVarP(&indicatorOutputSize, "outputsize", "n", collector.DefaultOutputSize, "number of values")
	rootCmd.AddCommand(indicatorCmd)
}

func runSeries(cmd *cobra.Command, args []string) error {
	a, _, log, err := newApp()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	ts, err := a.Facade().TimeSeries(cmd.Context(), collector.SeriesRequest{
		Symbol:     args[0],
		Interval:   core.Interval(seriesInterval),
		OutputSize: seriesOutputSize,
	}, core.Provider(seriesProvider))
	if err != nil {
		return err
	}
	if seriesAscending {
		asc := ts.Ascending()
		ts = &asc
	}
	return printResult(cmd.OutOrStdout(), ts)
}

func runIndicator(cmd *cobra.Command, args []string) error {
	a, _, log, err := newApp()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	series, err := a.Facade().Indicator(cmd.Context(), collector.IndicatorRequest{
		Symbol:     args[1],
		Indicator:  core.IndicatorKind(args[0]),
		Interval:   core.Interval(indicatorInterval),
		TimePeriod: indicatorTimePeriod,
		OutputSize: indicatorOutputSize,
	}, core.Provider(indicatorProvider))
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), series)
}
