package main

import (
	"flag"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/zphy/zphy"
	"github.com/zphy/zphy/actor"
	"go.uber.org/zap"
)

// SetupScene creates a floor, a stack of boxes and a tilted box dropped beside it
func SetupScene(world *zphy.World, height int) (*actor.RigidBody, []*actor.RigidBody, error) {
	floorCollider, err := actor.NewCuboid(mgl32.Vec3{20, 0.5, 20}, mgl32.Vec3{0, -0.5, 0}, mgl32.QuatIdent())
	if err != nil {
		return nil, nil, err
	}
	floor, err := actor.NewStatic(floorCollider)
	if err != nil {
		return nil, nil, err
	}
	floor.Friction = 0.8
	world.AddBody(floor)

	var boxes []*actor.RigidBody
	for i := 0; i < height; i++ {
		// Small gaps so every box falls into place
		center := mgl32.Vec3{0, 0.5 + float32(i)*1.05, 0}
		c, err := actor.NewCuboid(mgl32.Vec3{0.5, 0.5, 0.5}, center, mgl32.QuatIdent())
		if err != nil {
			return nil, nil, err
		}
		box, err := actor.NewDynamic(1, c, 0.6, mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{}, actor.Damping{Linear: 0.01, Angular: 0.05}, 0.1)
		if err != nil {
			return nil, nil, err
		}
		world.AddBody(box)
		boxes = append(boxes, box)
	}

	// Tilted, spinning and bouncy
	c, err := actor.NewCuboid(mgl32.Vec3{0.75, 0.25, 0.5}, mgl32.Vec3{3, 6, 0}, mgl32.QuatRotate(0.6, mgl32.Vec3{1, 0, 1}.Normalize()))
	if err != nil {
		return nil, nil, err
	}
	tilted, err := actor.NewDynamic(2, c, 0.4, mgl32.Vec3{-0.5, 0, 0}, mgl32.Vec3{0, 1.5, 0}, mgl32.Vec3{}, actor.Damping{Linear: 0.01, Angular: 0.05}, 0.8)
	if err != nil {
		return nil, nil, err
	}
	world.AddBody(tilted)
	boxes = append(boxes, tilted)

	return floor, boxes, nil
}

func run(logger *zap.Logger, configPath string, height, steps int, dt float64) error {
	cfg := zphy.DefaultConfig()
	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return err
		}
		defer f.Close()

		if cfg, err = zphy.LoadConfig(f); err != nil {
			return err
		}
	}

	world, err := zphy.NewWorld(cfg, zphy.WithLogger(logger.Named("world")))
	if err != nil {
		return err
	}

	world.Events.Subscribe(zphy.COLLISION_ENTER, func(e zphy.Event) {
		enter := e.(zphy.CollisionEnterEvent)
		logger.Info("collision enter",
			zap.Stringer("a", enter.BodyA.ID),
			zap.Stringer("b", enter.BodyB.ID),
		)
	})

	_, boxes, err := SetupScene(world, height)
	if err != nil {
		return err
	}

	for i := 0; i < steps; i++ {
		world.Step(float32(dt))
	}

	for i, box := range boxes {
		logger.Info("box",
			zap.Int("index", i),
			zap.Float32("mass", box.Mass()),
			zap.Float32s("position", box.Transform.Position[:]),
			zap.Float32s("velocity", box.Velocity.Linear[:]),
			zap.Bool("grounded", box.Grounded),
		)
	}
	logger.Info("done", zap.Int("steps", steps), zap.Uint64("checksum", world.Checksum()))

	return nil
}

func main() {
	configPath := flag.String("config", "", "YAML world configuration")
	height := flag.Int("height", 5, "number of stacked boxes")
	steps := flag.Int("steps", 600, "number of steps to simulate")
	dt := flag.Float64("dt", 1.0/60.0, "time step in seconds")
	debug := flag.Bool("debug", false, "log every substep")
	flag.Parse()

	zcfg := zap.NewDevelopmentConfig()
	if !*debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger, *configPath, *height, *steps, *dt); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}
