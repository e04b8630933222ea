package seed

import (
	"github.com/kilianp07/ridefair/core/factory"
	coreseed "github.com/kilianp07/ridefair/core/seed"
)

func decode(conf map[string]any) (Conf, error) {
	var c Conf
	err := factory.Decode(conf, &c)
	return c, err
}

func init() {
	_ = coreseed.RegisterSink("mysql", func(conf map[string]any) (coreseed.Sink, error) {
		c, err := decode(conf)
		if err != nil {
			return nil, err
		}
		return NewMySQLSink(c)
	})
	_ = coreseed.RegisterSink("postgis", func(conf map[string]any) (coreseed.Sink, error) {
		c, err := decode(conf)
		if err != nil {
			return nil, err
		}
		return NewPostGISSink(c)
	})
	_ = coreseed.RegisterSink("sqlite", func(conf map[string]any) (coreseed.Sink, error) {
		c, err := decode(conf)
		if err != nil {
			return nil, err
		}
		return NewSQLiteSink(c)
	})
}
