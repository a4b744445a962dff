package main

import (
	"context"
	"flag"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/contact"
	"github.com/trezcool/koinonia/core/reminder"
)

const remindTimeout = time.Minute

func (cli *commandLine) remind(args []string) error {
	remindCmd := flag.NewFlagSet("remind", flag.ExitOnError)
	remindDate := remindCmd.String("date", "", "Resolution day as YYYY-MM-DD. Defaults to today.")
	remindSend := remindCmd.Bool("send", false, "Email due reminders and record the dispatches.")
	if err := remindCmd.Parse(args); err != nil {
		return err
	}

	day := core.Today()
	if *remindDate != "" {
		parsed, err := time.Parse("2006-01-02", *remindDate)
		if err != nil {
			return errors.Wrap(err, "parsing -date")
		}
		day = core.DateOf(parsed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), remindTimeout)
	defer cancel()

	obligations, err := cli.reminderSvc.Resolve(ctx, day)
	if err != nil {
		return err
	}
	if len(obligations) == 0 {
		fmt.Fprintln(cli.out, "no reminder obligations for", day.Format("2006-01-02"))
		return nil
	}

	for _, ob := range obligations {
		fmt.Fprintf(
			cli.out, "%-10s %s %q on %s -> %s (due %s)\n",
			ob.Status, ob.Event.Kind, ob.Event.Title, ob.EventDate.Format("2006-01-02"),
			ob.Contact.Name, ob.DueDate.Format("2006-01-02"),
		)
	}
	if !*remindSend {
		return nil
	}

	var sent int
	for _, ob := range obligations {
		switch ob.Status {
		case reminder.StatusPending, reminder.StatusLate:
			if err := cli.dispatch(ctx, ob); err != nil {
				return err
			}
			sent++
		case reminder.StatusSentToday: // already handled today
		}
	}
	fmt.Fprintf(cli.out, "%d reminder(s) dispatched\n", sent)
	return nil
}

func (cli *commandLine) dispatch(ctx context.Context, ob reminder.Obligation) error {
	message := fmt.Sprintf(
		"Hi %s, this is a reminder that you are assigned to %q on %s.",
		ob.Contact.Name, ob.Event.Title, ob.EventDate.Format("Mon, 02 Jan 2006"),
	)

	// whatsapp-only contacts are delivered through the platform's messaging
	// bridge; this command only handles the email channel.
	if ob.Contact.Channel != contact.ChannelWhatsapp && ob.Contact.Email != "" {
		cli.emailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: ob.Contact.Name, Address: ob.Contact.Email}},
			Subject: fmt.Sprintf("Reminder: %s", ob.Event.Title),
			BodyStr: message,
		})
	}

	if _, err := cli.reminderSvc.Record(ctx, ob, message); err != nil {
		return errors.Wrapf(err, "recording dispatch for %s", ob.Contact.Name)
	}
	return nil
}
