package main

import (
	"fmt"
	"strconv"
	"strings"

	"oustaa/internal/models"
	"oustaa/internal/utils"

	"github.com/spf13/cobra"
)

func newEstimateCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:     "estimate",
		Short:   "Print the fare estimate between two points",
		Example: "  oustaa estimate --from 32.8872,13.1913 --to 32.8900,13.2000",
		RunE: func(cmd *cobra.Command, args []string) error {
			pickup, err := parsePoint(from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			destination, err := parsePoint(to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			distance := utils.CalculateDistance(pickup.Latitude, pickup.Longitude, destination.Latitude, destination.Longitude)
			schedule := utils.DefaultFareSchedule

			fmt.Fprintf(cmd.OutOrStdout(), "distance: %.2f km\nprice: %.2f\nduration: %d min\n",
				distance, schedule.Price(distance), schedule.Duration(distance))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "pickup as lat,lng")
	cmd.Flags().StringVar(&to, "to", "", "destination as lat,lng")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func parsePoint(value string) (models.Coordinates, error) {
	latRaw, lngRaw, found := strings.Cut(value, ",")
	if !found {
		return models.Coordinates{}, fmt.Errorf("expected lat,lng, got %q", value)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return models.Coordinates{}, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return models.Coordinates{}, err
	}

	point := models.Coordinates{Latitude: lat, Longitude: lng}
	if !point.IsValid() {
		return models.Coordinates{}, fmt.Errorf("coordinates out of range: %q", value)
	}
	return point, nil
}
