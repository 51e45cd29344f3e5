package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/theo/glucolog/internal/models"
	"github.com/theo/glucolog/internal/output"
)

var addCmd = &cobra.Command{
	Use:     "add <value>",
	Aliases: []string{"record"},
	Short:   "Record a glucose reading",
	Long:    `Record a glucose reading. Works offline; unsynced readings are queued and pushed on the next sync.`,
	Args:    cobra.ExactArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			output.Error("invalid value: %s", args[0])
			return fmt.Errorf("invalid value: %s", args[0])
		}

		unitFlag, _ := cmd.Flags().GetString("unit")
		typeFlag, _ := cmd.Flags().GetString("type")
		subTypeFlag, _ := cmd.Flags().GetString("sub-type")
		notes, _ := cmd.Flags().GetString("notes")
		meal, _ := cmd.Flags().GetString("meal")
		device, _ := cmd.Flags().GetString("device")
		when, _ := cmd.Flags().GetString("time")

		unit := models.Unit(unitFlag)
		if !models.IsValidUnit(unit) {
			output.Error("invalid unit: %s (valid: mg/dL, mmol/L)", unitFlag)
			return fmt.Errorf("invalid unit: %s", unitFlag)
		}

		measuredAt := time.Now().UTC()
		if when != "" {
			measuredAt, err = time.Parse(time.RFC3339, when)
			if err != nil {
				output.Error("invalid --time (want RFC3339): %s", when)
				return err
			}
		}

		app, err := openApp(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer app.Close()

		reading := &models.Reading{
			Value:       value,
			Unit:        unit,
			MeasuredAt:  measuredAt,
			Type:        models.ReadingType(typeFlag),
			SubType:     models.ManualSubType(subTypeFlag),
			Notes:       notes,
			MealContext: meal,
			DeviceID:    device,
		}

		if err := app.engine.CreateReading(cmd.Context(), reading); err != nil {
			output.Error("%v", err)
			return err
		}

		output.Success("Recorded %.1f %s (%s)", reading.Value, reading.Unit, reading.Status)
		if !reading.Synced {
			output.Info("Queued for sync (offline or backend unavailable)")
		}
		return nil
	},
}

func init() {
	addCmd.Flags().String("unit", string(models.UnitMgDl), "unit: mg/dL or mmol/L")
	addCmd.Flags().String("type", string(models.TypeManual), "reading type: manual or cgm")
	addCmd.Flags().String("sub-type", "", "manual sub-type: fasting, post_meal, random, bedtime")
	addCmd.Flags().String("notes", "", "free-text notes")
	addCmd.Flags().String("meal", "", "meal context tag")
	addCmd.Flags().String("device", "", "measuring device identifier")
	addCmd.Flags().String("time", "", "measurement time (RFC3339, default now)")
	rootCmd.AddCommand(addCmd)
}
