// Command console chats with the clinic desk from a terminal, using
// in-memory storage.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/model/doctor"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/booking"
	dialoguesvc "github.com/zhouzirui/clinic-desk/backend/internal/service/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/frontdesk"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/risk"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/session"
)

var rootCmd = &cobra.Command{
	Use:          "console",
	Short:        "Talk to the clinic desk in a terminal",
	Long:         `console runs the appointment booking or reception dialogue against in-memory storage. Type a message per line; the session ends when the dialogue does or on EOF.`,
	SilenceUsage: true,
	RunE:         runChat,
}

var doctorsCmd = &cobra.Command{
	Use:   "doctors",
	Short: "List the doctor roster",
	RunE:  runDoctors,
}

var (
	chatFlow   string
	chatDoctor string
	rosterFile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rosterFile, "roster", "", "Doctor roster file (defaults to the built-in roster)")
	rootCmd.Flags().StringVar(&chatFlow, "flow", dialogue.FlowBooking, "Dialogue flow: booking or reception")
	rootCmd.Flags().StringVar(&chatDoctor, "doctor", "", "Doctor id to book with once the dialogue completes")
	rootCmd.AddCommand(doctorsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	roster, err := loadRoster()
	if err != nil {
		return err
	}
	desk, err := newDesk(cmd.Context(), roster)
	if err != nil {
		return err
	}
	return converse(cmd.Context(), desk, chatFlow, chatDoctor, cmd.InOrStdin(), cmd.OutOrStdout())
}

func runDoctors(cmd *cobra.Command, args []string) error {
	roster, err := loadRoster()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSPECIALIZATION\tHOURS")
	for _, d := range roster.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s-%s\n", d.ID, d.Name, d.Specialization, d.AvailableFrom, d.AvailableTo)
	}
	return w.Flush()
}

func loadRoster() (*doctor.MemoryStore, error) {
	if rosterFile == "" {
		return doctor.NewMemoryStore(doctor.Seed()), nil
	}
	doctors, _, err := doctor.LoadRoster(rosterFile)
	if err != nil {
		return nil, err
	}
	return doctor.NewMemoryStore(doctors), nil
}

func newDesk(ctx context.Context, roster doctor.Store) (*frontdesk.Desk, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	riskSvc, err := risk.NewService(ctx, nil, risk.Config{})
	if err != nil {
		return nil, err
	}
	bookingSvc := booking.NewService(roster, booking.NewMemoryRepository(), booking.WithRiskAssessor(riskSvc))

	var managers []*dialoguesvc.Manager
	for _, flow := range []*dialogue.Flow{dialogue.BookingFlow(), dialogue.ReceptionFlow()} {
		m, err := dialoguesvc.NewManager(flow, session.NewMemoryStore(), dialoguesvc.WithSlotChecker(bookingSvc))
		if err != nil {
			return nil, err
		}
		managers = append(managers, m)
	}
	return frontdesk.New(bookingSvc, managers...), nil
}

// converse reads one utterance per line until the dialogue ends or input runs out.
func converse(ctx context.Context, desk *frontdesk.Desk, flow, doctorID string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sctx := map[string]string{booking.ContextDoctorID: doctorID}

	// 问候语来自一次空输入
	reply, err := desk.Turn(ctx, flow, "", "", sctx)
	if err != nil {
		return err
	}
	sessionID := reply.SessionID
	fmt.Fprintf(out, "desk> %s\n", reply.Prompt)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply, err = desk.Turn(ctx, flow, sessionID, line, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "desk> %s\n", reply.Prompt)

		if reply.Appointment != nil {
			a := reply.Appointment
			fmt.Fprintf(out, "booked %s with %s on %s at %s\n", a.ID, a.DoctorID, a.Date, a.Time)
		}
		if reply.BookingError != "" {
			fmt.Fprintf(out, "booking failed: %s\n", reply.BookingError)
		}
		if reply.Ended {
			return nil
		}
	}
}
