package testutil

import "github.com/roach88/homestead/internal/catalog"

// Action and stage names used by the rose fixture.
const (
	ActionTillSoil  = "Till Soil"
	ActionPlantSeed = "Plant Seed"
	ActionWater     = "Water"
	ActionHarvest   = "Harvest"

	StageRoseSprout  catalog.StageID = "Rose_Sprout"
	StageRoseBudding catalog.StageID = "Rose_Budding"
	StageRoseRipe    catalog.StageID = "Rose_Ripe"

	// RoseStageDuration and RoseWateringCooldown apply to every rose stage
	// that needs water.
	RoseStageDuration    = 10.0
	RoseWateringCooldown = 5.0
)

// Ground returns the species-independent stages: Grass and Soil_Empty.
func Ground() *catalog.PlantDefinition {
	return catalog.NewPlant("Ground", "", []catalog.StageDefinition{
		{
			Stage:          catalog.StageGrass,
			Visual:         "grass",
			TillSoilAction: ActionTillSoil,
		},
		{
			Stage:           catalog.StageSoilEmpty,
			Visual:          "soil",
			TillSoilAction:  ActionTillSoil,
			PlantSeedAction: ActionPlantSeed,
		},
	})
}

// Rose returns a four-stage species: seeded, sprout and budding need water
// and progress after RoseStageDuration; ripe waits for a harvest.
func Rose() *catalog.PlantDefinition {
	watered := func(stage, next catalog.StageID, visual catalog.VisualID) catalog.StageDefinition {
		return catalog.StageDefinition{
			Stage:              stage,
			Visual:             visual,
			WateredVisual:      visual + "_wet",
			RequiresWatering:   true,
			Duration:           RoseStageDuration,
			WateringCooldown:   RoseWateringCooldown,
			NextAuto:           next,
			NextOnWater:        stage,
			NextOnPlayerAction: stage,
			WaterAction:        ActionWater,
		}
	}
	return catalog.NewPlant("Rose", "rose_seed", []catalog.StageDefinition{
		watered(catalog.StageSoilSeeded, StageRoseSprout, "rose_seed"),
		watered(StageRoseSprout, StageRoseBudding, "rose_sprout"),
		watered(StageRoseBudding, StageRoseRipe, "rose_bud"),
		{
			Stage:              StageRoseRipe,
			Visual:             "rose_ripe",
			NextAuto:           StageRoseRipe,
			NextOnWater:        StageRoseRipe,
			NextOnPlayerAction: catalog.StageSoilEmpty,
			HarvestAction:      ActionHarvest,
		},
	})
}

// RoseCatalog returns the full rose catalog: ground, Rose, and the four
// farming actions. It mirrors RoseCatalogCUE.
func RoseCatalog() *catalog.Catalog {
	ground := Ground()
	rose := Rose()
	return &catalog.Catalog{
		Ground: ground,
		Plants: []*catalog.PlantDefinition{rose},
		Actions: &catalog.ActionCatalog{Actions: []*catalog.ActionDefinition{
			{
				Name:      ActionTillSoil,
				TargetTag: "Grass",
				Effects: []catalog.EffectDefinition{
					{Kind: catalog.EffectTriggerGrowthAction, Action: ActionTillSoil},
					{Kind: catalog.EffectChangeTag, Tag: "Soil"},
					{Kind: catalog.EffectPlayActorAnimation, Clip: "swing_hoe"},
					{Kind: catalog.EffectPlaySound, Clip: "till"},
				},
			},
			{
				Name:         ActionPlantSeed,
				TargetTag:    "Soil",
				TargetVisual: "soil",
				Seed:         rose,
				Effects: []catalog.EffectDefinition{
					{Kind: catalog.EffectTriggerGrowthAction, Action: ActionPlantSeed},
					{Kind: catalog.EffectChangeTag, Tag: "Planted"},
					{Kind: catalog.EffectPlayActorAnimation, Clip: "plant"},
				},
			},
			{
				Name:         ActionHarvest,
				TargetTag:    "Planted",
				TargetVisual: "rose_ripe",
				Effects: []catalog.EffectDefinition{
					{Kind: catalog.EffectTriggerGrowthAction, Action: ActionHarvest},
					{Kind: catalog.EffectChangeTag, Tag: "Soil"},
					{Kind: catalog.EffectPlaySound, Clip: "pluck"},
				},
			},
			{
				Name:      ActionWater,
				TargetTag: "Planted",
				Effects: []catalog.EffectDefinition{
					{Kind: catalog.EffectTriggerGrowthAction, Action: ActionWater},
					{Kind: catalog.EffectPlayActorAnimation, Clip: "water"},
					{Kind: catalog.EffectPlaySound, Clip: "splash"},
				},
			},
		}},
	}
}

// RoseCatalogCUE is the CUE source of RoseCatalog.
const RoseCatalogCUE = `
ground: {
	name: "Ground"
	stages: [
		{id: "Grass", visual: "grass", till: "Till Soil"},
		{id: "Soil_Empty", visual: "soil", till: "Till Soil", plant: "Plant Seed"},
	]
}

plant: Rose: {
	seed_visual: "rose_seed"
	stages: [
		{id: "Soil_Seeded", visual: "rose_seed", watered_visual: "rose_seed_wet", requires_watering: true, duration: 10, watering_cooldown: 5, next_auto: "Rose_Sprout", next_on_water: "Soil_Seeded", next_on_player_action: "Soil_Seeded", water: "Water"},
		{id: "Rose_Sprout", visual: "rose_sprout", watered_visual: "rose_sprout_wet", requires_watering: true, duration: 10, watering_cooldown: 5, next_auto: "Rose_Budding", next_on_water: "Rose_Sprout", next_on_player_action: "Rose_Sprout", water: "Water"},
		{id: "Rose_Budding", visual: "rose_bud", watered_visual: "rose_bud_wet", requires_watering: true, duration: 10, watering_cooldown: 5, next_auto: "Rose_Ripe", next_on_water: "Rose_Budding", next_on_player_action: "Rose_Budding", water: "Water"},
		{id: "Rose_Ripe", visual: "rose_ripe", next_auto: "Rose_Ripe", next_on_water: "Rose_Ripe", next_on_player_action: "Soil_Empty", harvest: "Harvest"},
	]
}

actions: [
	{
		name: "Till Soil"
		tag:  "Grass"
		effects: [
			{type: "growth", action: "Till Soil"},
			{type: "change_tag", tag: "Soil"},
			{type: "actor_animation", clip: "swing_hoe"},
			{type: "sound", clip: "till"},
		]
	},
	{
		name:   "Plant Seed"
		tag:    "Soil"
		visual: "soil"
		seed:   "Rose"
		effects: [
			{type: "growth", action: "Plant Seed"},
			{type: "change_tag", tag: "Planted"},
			{type: "actor_animation", clip: "plant"},
		]
	},
	{
		name:   "Harvest"
		tag:    "Planted"
		visual: "rose_ripe"
		effects: [
			{type: "growth", action: "Harvest"},
			{type: "change_tag", tag: "Soil"},
			{type: "sound", clip: "pluck"},
		]
	},
	{
		name: "Water"
		tag:  "Planted"
		effects: [
			{type: "growth", action: "Water"},
			{type: "actor_animation", clip: "water"},
			{type: "sound", clip: "splash"},
		]
	},
]
`
