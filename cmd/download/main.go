package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/quantmill/meanrev/pkg/marketdata"
)

// downloadAction sets up the market data client and starts the download.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	ticker := cmd.String("ticker")
	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")
	providerFlag := cmd.String("provider")
	dataPath := cmd.String("data")

	clientConfig := marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(providerFlag),
		WriterType:    marketdata.WriterDuckDB,
		DataPath:      dataPath,
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
	}

	var bar *progressbar.ProgressBar

	onProgress := func(current float64, total float64, message string) {
		if bar == nil {
			bar = progressbar.NewOptions(int(total),
				progressbar.OptionSetDescription(message),
				progressbar.OptionShowCount(),
			)
		}

		bar.Set(int(current))
	}

	client, err := marketdata.NewClient(clientConfig, onProgress)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	downloadParams := marketdata.DownloadParams{
		Ticker:     ticker,
		StartDate:  startDate,
		EndDate:    endDate,
		Multiplier: 1,
		Timespan:   models.Day,
	}

	log.Printf("Starting download for %s from %s to %s using %s provider...",
		ticker, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), providerFlag)

	if err := client.Download(ctx, downloadParams); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if bar != nil {
		bar.Finish()
	}

	log.Println("Download completed successfully.")

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical daily bars for backtesting",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Stock ticker symbol",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: false,
			},
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    fmt.Sprintf("Data provider to use (e.g., %s)", marketdata.ProviderPolygon),
				Value:    string(marketdata.ProviderPolygon),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the data output directory",
				Value:    "data",
				Required: false,
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
