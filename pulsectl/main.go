package main

// Remote control for a running metronome over its OSC interface.
//
//	pulsectl start
//	pulsectl tempo 140
//	pulsectl -addr 192.168.1.20:8765 volume 0.5

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/hypebeast/go-osc/osc"

	"github.com/robmorgan/pulse/oscremote"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8765", "address of the metronome's OSC remote")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	host, portStr, err := net.SplitHostPort(*addr)
	if err != nil {
		log.Fatalf("bad address %q: %v", *addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("bad port %q: %v", portStr, err)
	}
	client := osc.NewClient(host, port)

	msg, err := buildMessage(args)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := client.Send(msg); err != nil {
		log.Fatalf("could not send %s: %v", msg.Address, err)
	}
}

func buildMessage(args []string) (*osc.Message, error) {
	switch cmd := args[0]; cmd {
	case "start":
		return osc.NewMessage(oscremote.AddrStart), nil
	case "stop":
		return osc.NewMessage(oscremote.AddrStop), nil
	case "tap":
		return osc.NewMessage(oscremote.AddrTap), nil
	case "tempo", "volume":
		v, err := floatArg(cmd, args)
		if err != nil {
			return nil, err
		}
		address := oscremote.AddrTempo
		if cmd == "volume" {
			address = oscremote.AddrVolume
		}
		return osc.NewMessage(address, float32(v)), nil
	case "beats", "subdivision":
		v, err := floatArg(cmd, args)
		if err != nil {
			return nil, err
		}
		address := oscremote.AddrBeatsPerBar
		if cmd == "subdivision" {
			address = oscremote.AddrSubdivision
		}
		return osc.NewMessage(address, int32(v)), nil
	}
	return nil, fmt.Errorf("unknown command %q", args[0])
}

func floatArg(cmd string, args []string) (float64, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s needs a value", cmd)
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q: %v", cmd, args[1], err)
	}
	return v, nil
}

func usage() {
	fmt.Println("usage: pulsectl [-addr host:port] start|stop|tap|tempo N|beats N|subdivision N|volume F")
	os.Exit(2)
}
